package ensemble

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/strataml/cubefit/pkg/errors"
)

// SaveEnsemble writes an opaque whole-object snapshot of the members.
// Concrete step types must be gob-registered. The snapshot is for
// prediction-only reload; scoring function references are not
// serialized and byte-exact cross-version compatibility is not
// guaranteed.
func SaveEnsemble(w io.Writer, members []Member) error {
	if err := gob.NewEncoder(w).Encode(members); err != nil {
		return errors.Wrap(err, errors.Unknown, "encoding ensemble snapshot")
	}
	return nil
}

// LoadEnsemble reads a snapshot written by SaveEnsemble.
func LoadEnsemble(r io.Reader) ([]Member, error) {
	var members []Member
	if err := gob.NewDecoder(r).Decode(&members); err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "decoding ensemble snapshot")
	}
	return members, nil
}

// SaveEnsembleFile snapshots the members to a file.
func SaveEnsembleFile(path string, members []Member) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "creating snapshot file")
	}
	defer f.Close()
	if err := SaveEnsemble(f, members); err != nil {
		return err
	}
	return f.Sync()
}

// LoadEnsembleFile reads a snapshot file written by SaveEnsembleFile.
func LoadEnsembleFile(path string) ([]Member, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unknown, "opening snapshot file")
	}
	defer f.Close()
	return LoadEnsemble(f)
}
