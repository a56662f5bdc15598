package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/live-labs/confbak/internal/crypto"
)

// Bucket names
var (
	vaultConfigBucket  = []byte("config")  // KDF params, version, key check - unencrypted
	vaultIndexBucket   = []byte("index")   // Public key/environment/category listing
	vaultEntriesBucket = []byte("entries") // Encrypted entry payloads
)

// Config keys
var (
	vaultConfigVersion = []byte("version")
	vaultConfigSalt    = []byte("salt")
	vaultConfigIters   = []byte("iterations")
	vaultConfigCheck   = []byte("check")
)

const vaultKeyCheck = "confbak-key-check"

var ErrWrongUserKey = errors.New("wrong user key")

// Vault is a local, single-file configuration store. Entry payloads are
// encrypted with a key derived from the user key; the index bucket keeps
// only key, environment and category so listing works without decryption.
//
// It implements Client, so backups can be exported from or imported into a
// vault file exactly like a remote server.
type Vault struct {
	db  *bolt.DB
	enc *crypto.Encryptor
}

// OpenVault opens or creates a vault file and unlocks it with the user key.
// A new file is initialized with a fresh salt; an existing file rejects a
// wrong user key with ErrWrongUserKey.
func OpenVault(path string, userKey []byte) (*Vault, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}

	v := &Vault{db: db}
	if err := v.unlock(userKey); err != nil {
		db.Close()
		return nil, err
	}
	return v, nil
}

// Close closes the vault file and clears the derived key.
func (v *Vault) Close() error {
	if v.enc != nil {
		v.enc.Destroy()
	}
	return v.db.Close()
}

func (v *Vault) unlock(userKey []byte) error {
	var kdf *crypto.KDF
	var check []byte

	err := v.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{vaultConfigBucket, vaultIndexBucket, vaultEntriesBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(vaultConfigBucket)
		salt := config.Get(vaultConfigSalt)
		if salt == nil {
			fresh, err := crypto.NewKDF()
			if err != nil {
				return err
			}
			iters := make([]byte, 4)
			binary.BigEndian.PutUint32(iters, uint32(fresh.Iterations))
			if err := config.Put(vaultConfigSalt, fresh.Salt); err != nil {
				return err
			}
			if err := config.Put(vaultConfigIters, iters); err != nil {
				return err
			}
			if err := config.Put(vaultConfigVersion, []byte("1")); err != nil {
				return err
			}
			kdf = fresh
			return nil
		}

		iters := config.Get(vaultConfigIters)
		if len(iters) != 4 {
			return fmt.Errorf("vault corrupt: iterations missing")
		}
		kdf = &crypto.KDF{
			Salt:       append([]byte(nil), salt...),
			Iterations: int(binary.BigEndian.Uint32(iters)),
		}
		check = append([]byte(nil), config.Get(vaultConfigCheck)...)
		return nil
	})
	if err != nil {
		return err
	}

	v.enc = crypto.NewEncryptor(kdf.DeriveKey(userKey))

	if len(check) == 0 {
		sealed, err := v.enc.Encrypt([]byte(vaultKeyCheck))
		if err != nil {
			return err
		}
		return v.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(vaultConfigBucket).Put(vaultConfigCheck, sealed)
		})
	}

	plain, err := v.enc.Decrypt(check)
	if err != nil || string(plain) != vaultKeyCheck {
		return ErrWrongUserKey
	}
	return nil
}

// indexRow is the public listing record for one entry.
type indexRow struct {
	Key         string     `json:"key"`
	Environment string     `json:"environment"`
	Category    string     `json:"category,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// entryID builds the bucket key for (key, environment). The NUL separator
// cannot appear in either component.
func entryID(key, environment string) []byte {
	return []byte(environment + "\x00" + key)
}

func (v *Vault) List(_ context.Context, f Filters) ([]Entry, error) {
	var ids [][]byte
	err := v.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(vaultIndexBucket).ForEach(func(k, rowData []byte) error {
			var row indexRow
			if err := json.Unmarshal(rowData, &row); err != nil {
				return fmt.Errorf("vault index corrupt: %w", err)
			}
			if f.Match(Entry{Key: row.Key, Environment: row.Environment, Category: row.Category}) {
				ids = append(ids, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	err = v.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(vaultEntriesBucket)
		for _, id := range ids {
			entry, err := v.decodeEntry(bucket.Get(id))
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (v *Vault) Read(_ context.Context, key, environment string) (*Entry, error) {
	var data []byte
	err := v.db.View(func(tx *bolt.Tx) error {
		data = append([]byte(nil), tx.Bucket(vaultEntriesBucket).Get(entryID(key, environment))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return v.decodeEntry(data)
}

func (v *Vault) Exists(_ context.Context, key, environment string) (bool, error) {
	var found bool
	err := v.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(vaultEntriesBucket).Get(entryID(key, environment)) != nil
		return nil
	})
	return found, err
}

func (v *Vault) Create(_ context.Context, e Entry) (*Entry, error) {
	now := time.Now().UTC()
	e.CreatedAt = &now
	e.UpdatedAt = &now

	err := v.db.Update(func(tx *bolt.Tx) error {
		id := entryID(e.Key, e.Environment)
		if tx.Bucket(vaultEntriesBucket).Get(id) != nil {
			return ErrAlreadyExists
		}
		return v.putEntry(tx, id, e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (v *Vault) Update(_ context.Context, e Entry) (*Entry, error) {
	now := time.Now().UTC()

	err := v.db.Update(func(tx *bolt.Tx) error {
		id := entryID(e.Key, e.Environment)
		data := tx.Bucket(vaultEntriesBucket).Get(id)
		if data == nil {
			return ErrNotFound
		}
		existing, err := v.decodeEntry(data)
		if err != nil {
			return err
		}
		e.CreatedAt = existing.CreatedAt
		e.UpdatedAt = &now
		return v.putEntry(tx, id, e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (v *Vault) Delete(_ context.Context, key, environment string) error {
	return v.db.Update(func(tx *bolt.Tx) error {
		id := entryID(key, environment)
		if tx.Bucket(vaultEntriesBucket).Get(id) == nil {
			return ErrNotFound
		}
		if err := tx.Bucket(vaultEntriesBucket).Delete(id); err != nil {
			return err
		}
		return tx.Bucket(vaultIndexBucket).Delete(id)
	})
}

func (v *Vault) Ping(_ context.Context) error {
	return nil
}

// ClusterDistribution reports the vault as a single healthy local node.
func (v *Vault) ClusterDistribution(_ context.Context) (*Distribution, error) {
	var count int
	err := v.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(vaultEntriesBucket).Stats().KeyN
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Distribution{
		Enabled:   false,
		TotalKeys: count,
		Nodes: []NodeDistribution{
			{NodeID: "local", KeyCount: count, Status: "healthy"},
		},
	}, nil
}

func (v *Vault) putEntry(tx *bolt.Tx, id []byte, e Entry) error {
	plain, err := json.Marshal(e)
	if err != nil {
		return err
	}
	sealed, err := v.enc.Encrypt(plain)
	if err != nil {
		return err
	}
	if err := tx.Bucket(vaultEntriesBucket).Put(id, sealed); err != nil {
		return err
	}

	row, err := json.Marshal(indexRow{
		Key:         e.Key,
		Environment: e.Environment,
		Category:    e.Category,
		UpdatedAt:   e.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Bucket(vaultIndexBucket).Put(id, row)
}

func (v *Vault) decodeEntry(sealed []byte) (*Entry, error) {
	plain, err := v.enc.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(plain, &e); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}
	return &e, nil
}

var _ Client = (*Vault)(nil)
