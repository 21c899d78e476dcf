package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// hostProfile is one named entry of the YAML host file. Every field is
// optional; command-line flags win over profile values.
type hostProfile struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port"`
	User       string   `yaml:"user"`
	Password   string   `yaml:"password"`
	HostKey    string   `yaml:"hostkey"` // path to the server's public key file
	Dir        string   `yaml:"dir"`
	Blocksize  uint32   `yaml:"blocksize"`
	KeepAlive  bool     `yaml:"keepalive"`
	SSHOptions []string `yaml:"ssh_options"`
}

// loadProfile reads the host file and returns the named profile.
func loadProfile(path, name string) (*hostProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading host file")
	}

	var profiles map[string]*hostProfile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, errors.Wrap(err, "parsing host file")
	}

	p, ok := profiles[name]
	if !ok {
		return nil, errors.Errorf("no profile %q in %s", name, path)
	}

	return p, nil
}
