package credentials

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/session"
)

// the three credential keys, one file each
const (
	accessTokenFile  = "access_token"
	refreshTokenFile = "refresh_token"
	userFile         = "user.json"
)

// FileStore persists the credential Record under a directory, one file per
// key, the way a browser tab would use localStorage. Files are 0600; the
// directory 0700.
type FileStore struct {
	dir string
}

var _ session.Credentials = (*FileStore)(nil)

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Load() (session.Record, error) {
	var rec session.Record
	var err error
	if rec.AccessToken, err = s.read(accessTokenFile); err != nil {
		return session.Record{}, err
	}
	if rec.RefreshToken, err = s.read(refreshTokenFile); err != nil {
		return session.Record{}, err
	}
	if rec.SerializedUser, err = s.read(userFile); err != nil {
		return session.Record{}, err
	}
	return rec, nil
}

func (s *FileStore) Save(rec session.Record) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return errors.Wrap(err, "creating credentials dir")
	}
	if err := s.write(accessTokenFile, rec.AccessToken); err != nil {
		return err
	}
	if err := s.write(refreshTokenFile, rec.RefreshToken); err != nil {
		return err
	}
	return s.write(userFile, rec.SerializedUser)
}

func (s *FileStore) Clear() error {
	for _, name := range []string{accessTokenFile, refreshTokenFile, userFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing %s", name)
		}
	}
	return nil
}

func (s *FileStore) read(name string) (string, error) {
	data, err := ioutil.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, "reading %s", name)
	}
	return string(data), nil
}

// write goes through a temp file + rename so a crashed write never leaves a
// torn value behind.
func (s *FileStore) write(name, val string) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := ioutil.WriteFile(tmp, []byte(val), 0600); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	return nil
}
