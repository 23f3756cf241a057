package common

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bnbsched/rpcwrapper"
)

var ErrBadConfig = errors.New("bad cluster config")

func LoadConfig(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()
	return ParseConfig(file)
}

// ParseConfig decodes a topology and orders its ranks by id. Ids must be
// exactly 0..N-1.
func ParseConfig(r io.Reader) (Config, error) {
	config := Config{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	if len(config.Ranks) == 0 {
		return Config{}, fmt.Errorf("%w: no ranks", ErrBadConfig)
	}

	slices.SortFunc(config.Ranks, func(a, b RankInfo) int { return a.Id - b.Id })
	for i, rank := range config.Ranks {
		if rank.Id != i {
			return Config{}, fmt.Errorf("%w: rank ids must be 0..%d, found %d at position %d", ErrBadConfig, len(config.Ranks)-1, rank.Id, i)
		}
		if rank.Port <= 0 || rank.Port > 65535 {
			return Config{}, fmt.Errorf("%w: rank %d has port %d", ErrBadConfig, rank.Id, rank.Port)
		}
	}
	if config.MetricsPort < 0 || config.MetricsPort > 65535 {
		return Config{}, fmt.Errorf("%w: metrics port %d", ErrBadConfig, config.MetricsPort)
	}
	return config, nil
}

// ConfigFromPeers builds a topology from "host:port" addresses, rank i
// being the i-th address.
func ConfigFromPeers(peers []string) (Config, error) {
	config := Config{}
	for i, peer := range peers {
		host, port, err := splitAddr(peer)
		if err != nil {
			return Config{}, err
		}
		config.Ranks = append(config.Ranks, RankInfo{Id: i, Host: host, Port: port})
	}
	if len(config.Ranks) == 0 {
		return Config{}, fmt.Errorf("%w: no ranks", ErrBadConfig)
	}
	return config, nil
}

func MakeClientEnds(ranks []RankInfo) []*rpcwrapper.ClientEnd {
	clientEnds := make([]*rpcwrapper.ClientEnd, len(ranks))
	for i, rank := range ranks {
		clientEnds[i] = rpcwrapper.MakeClient(rank.Host, rank.Port)
	}
	return clientEnds
}

func splitAddr(name string) (string, int, error) {
	host, portStr, ok := strings.Cut(name, ":")
	if !ok {
		return "", 0, fmt.Errorf("%w: address %q is not host:port", ErrBadConfig, name)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: port of %q should be an integer in 1..65535", ErrBadConfig, name)
	}
	return host, port, nil
}
