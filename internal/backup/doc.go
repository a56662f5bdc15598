// Package backup implements encrypted configuration backups: exporting a
// filtered snapshot of a store into a portable sealed artifact, and
// reconciling such an artifact back into a live store under an
// overwrite-or-skip policy with bounded concurrency.
package backup
