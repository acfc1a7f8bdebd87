package actors

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Open returns the flat file for db under the mind's directory, or false if it has never been written.
func Open(dir, mind, db string) (*os.File, bool, error) {
	if err := os.MkdirAll(directory(dir, mind), 0777); err != nil {
		return nil, false, err
	}
	_, err := os.Stat(filename(dir, mind, db))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	file, err := os.Open(filename(dir, mind, db))
	if err != nil {
		return nil, false, err
	}
	return file, true, nil
}

// Write replaces the flat file for db. The new content is written to a temporary file first so a
// crash mid-write never leaves a truncated snapshot behind.
func Write(dir, mind, db string, b []byte) error {
	if err := os.MkdirAll(directory(dir, mind), 0777); err != nil {
		return err
	}
	tmp := filename(dir, mind, db) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, bytes.NewReader(b))
	if err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp, filename(dir, mind, db)); err != nil {
		return fmt.Errorf("could not replace %s: %s", filename(dir, mind, db), err.Error())
	}
	return nil
}

// DataDir is the directory flat files live in according to the current config.
func DataDir() string {
	return MakeOrGetConfig().GetString("rootDir") + MakeOrGetConfig().GetString("flatFileDir")
}

func directory(dir, mind string) string {
	return filepath.Join(dir, mind)
}

func filename(dir, mind, db string) string {
	return filepath.Join(directory(dir, mind), db+".dat")
}
