package am

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/teranos/annogen/errors"
)

// UnknownKey is a config file key that matches no setting.
type UnknownKey struct {
	Path string // config file
	Key  string // dotted key, e.g. generator.max_round
}

func (k UnknownKey) String() string { return k.Path + ": " + k.Key }

// CheckUnknownKeys decodes path strictly and reports the keys Config does not
// declare. Tables under [processors] are free-form and never reported.
func CheckUnknownKeys(path string) ([]UnknownKey, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, errors.WithDetail(errors.Wrapf(err, "failed to parse %s", path), perr.ErrorWithPosition())
		}
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	var out []UnknownKey
	for _, key := range md.Undecoded() {
		out = append(out, UnknownKey{Path: path, Key: key.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
