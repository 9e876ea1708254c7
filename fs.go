package relsql

import "github.com/spf13/afero"

var osFs afero.Fs = afero.NewOsFs()
