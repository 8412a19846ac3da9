package mesh

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/achilleasa/lumen/asset"
	"github.com/achilleasa/lumen/log"
)

var logger = log.New("mesh loader")

type LoadOptions struct {
	// If set, parsed meshes are cached in this folder as <name>.bin and
	// subsequent loads for the same name skip obj parsing.
	CacheDir string

	// Center the mesh and scale it to a 0.5 max extent after parsing.
	Normalize bool
}

// Load a mesh from a local path or a http(s) url.
func Load(pathToMesh string, opts LoadOptions) (*Mesh, error) {
	res, err := asset.NewResource(pathToMesh, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return LoadResource(res, opts)
}

// Load a mesh from a resource, consulting the cache first.
func LoadResource(res *asset.Resource, opts LoadOptions) (*Mesh, error) {
	name := res.Name()

	if opts.CacheDir != "" {
		m, err := readCacheFile(cachePath(opts.CacheDir, name), name)
		if err == nil {
			logger.Infof("loaded mesh %q from cache", name)
			return m, nil
		} else if !os.IsNotExist(err) {
			logger.Warningf("ignoring cached mesh %q: %s", name, err.Error())
		}
	}

	if res.Ext() != ".obj" {
		return nil, fmt.Errorf("mesh: unsupported mesh format %q", res.Ext())
	}

	m, err := ReadWavefront(res)
	if err != nil {
		return nil, err
	}
	if opts.Normalize {
		m.Normalize()
	}

	if opts.CacheDir != "" {
		if err = writeCacheFile(opts.CacheDir, m); err != nil {
			logger.Warningf("could not cache mesh %q: %s", name, err.Error())
		}
	}
	return m, nil
}

func cachePath(cacheDir, name string) string {
	return filepath.Join(cacheDir, name+".bin")
}

func readCacheFile(file, name string) (*Mesh, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCache(bufio.NewReader(f), name)
}

func writeCacheFile(cacheDir string, m *Mesh) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}

	f, err := os.Create(cachePath(cacheDir, m.Name))
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err = WriteCache(bw, m); err != nil {
		return err
	}
	return bw.Flush()
}
