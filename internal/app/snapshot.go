package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"channels-go/internal/catalog"
	"channels-go/internal/config"
	"channels-go/internal/database"
	"channels-go/internal/encryption"
	"channels-go/internal/vault"
)

// snapshot copies the database to a temp file, encrypts it when an
// encryptor is configured and uploads it to the vault as version.
func (a *ChannelsApp) snapshot(version int64) error {
	tmp, err := os.CreateTemp("", "channels-db-snapshot-*.db")
	if err != nil {
		return fmt.Errorf("creating temp file for db snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses to write over an existing file.
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if err := a.db.BackupTo(tmpPath); err != nil {
		return err
	}

	uploadPath := tmpPath
	if a.encryptor != nil {
		encPath := tmpPath + ".age"
		defer os.Remove(encPath)
		if err := encryptFile(a.encryptor, tmpPath, encPath); err != nil {
			return fmt.Errorf("encrypting db snapshot: %w", err)
		}
		uploadPath = encPath
	}

	if err := a.upload(uploadPath, version); err != nil {
		return err
	}
	a.logger.Info("uploaded snapshot", "version", version)
	return nil
}

func (a *ChannelsApp) upload(path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening db snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat db snapshot: %w", err)
	}

	if err := a.vault.PutSnapshot(a.cfg.InstanceID, snapshotName, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading snapshot to vault: %w", err)
	}
	return nil
}

func encryptFile(enc catalog.Encryptor, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := enc.Encrypt(in, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// MigrateDatabase brings the configured database schema up to date.
func MigrateDatabase(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID, nil, nil)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// RestoreDatabase replaces the local database with the latest snapshot in
// the first configured vault and returns its version. passphrase unlocks
// the private key when snapshots are encrypted and is ignored otherwise.
func RestoreDatabase(ctx context.Context, cfg *config.Config, passphrase string) (int64, error) {
	if len(cfg.Vaults) == 0 {
		return 0, errors.New("no vault configured")
	}
	if cfg.Database.Type != "sqlite" {
		return 0, fmt.Errorf("cannot restore into a %s database", cfg.Database.Type)
	}

	v, err := vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
	if err != nil {
		return 0, fmt.Errorf("creating vault: %w", err)
	}
	version, err := v.GetSnapshotVersion(cfg.InstanceID, snapshotName)
	if err != nil {
		return 0, fmt.Errorf("checking snapshot version: %w", err)
	}
	if version == 0 {
		return 0, catalog.ErrSnapshotNotFound
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return 0, fmt.Errorf("creating encryptor: %w", err)
	}
	var dc catalog.DecryptionContext
	if enc != nil {
		if dc, err = enc.Unlock(passphrase); err != nil {
			return 0, fmt.Errorf("unlocking private key: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}
	tmpPath, err := download(v, cfg, dc)
	if err != nil {
		return 0, err
	}
	defer removeDatabaseFiles(tmpPath)

	if err := verifySnapshot(tmpPath); err != nil {
		return 0, err
	}

	dest := database.DatabasePath(cfg.Database, cfg.InstanceID)
	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("installing restored database: %w", err)
	}
	// Stale WAL files would be replayed over the restored database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dest + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("removing %s: %w", dest+suffix, err)
		}
	}
	return version, nil
}

func removeDatabaseFiles(path string) {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		os.Remove(path + suffix)
	}
}

// download writes the snapshot into a temp file next to the database so the
// final rename stays on one filesystem.
func download(v catalog.Vault, cfg *config.Config, dc catalog.DecryptionContext) (string, error) {
	tmp, err := os.CreateTemp(cfg.Database.DataDir, ".restore-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for restore: %w", err)
	}
	tmpPath := tmp.Name()

	var w io.WriteCloser = tmp
	var done <-chan error
	if dc != nil {
		pr, pw := io.Pipe()
		errc := make(chan error, 1)
		go func() {
			err := dc.Decrypt(pr, tmp)
			pr.CloseWithError(err)
			errc <- err
		}()
		w, done = pw, errc
	}

	err = v.GetSnapshot(cfg.InstanceID, snapshotName, w)
	if dc != nil {
		w.Close()
		if derr := <-done; err == nil && derr != nil {
			err = fmt.Errorf("decrypting snapshot: %w", derr)
		}
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("downloading snapshot: %w", err)
	}
	return tmpPath, nil
}

func verifySnapshot(path string) error {
	db, err := database.NewSQLiteDatabase(path, nil, nil)
	if err != nil {
		return fmt.Errorf("opening restored database: %w", err)
	}
	defer db.Close()

	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("restored database schema: %w", err)
	}
	return nil
}
