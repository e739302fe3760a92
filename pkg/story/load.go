package story

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/oisee/zvm/pkg/memory"
)

var log = commonlog.GetLogger("zvm.story")

// Load splits a story file at its static memory base and parses it.
func Load(data []byte) (*Story, error) {
	image := memory.New(data)

	// The version decides whether the rest of the header means anything.
	b, err := image.Read(offsetVersion)
	if err != nil {
		return nil, fmt.Errorf("story: empty file: %w", err)
	}
	if _, err := checkVersion(b); err != nil {
		return nil, err
	}

	staticBase, err := image.ReadWord(offsetStaticBase)
	if err != nil {
		return nil, fmt.Errorf("story: static base: %w", err)
	}
	sizeOfDynamic := int(staticBase)
	dynamic, err := image.Slice(0, sizeOfDynamic)
	if err != nil {
		return nil, fmt.Errorf("story: dynamic memory: %w", err)
	}
	static, err := image.Slice(sizeOfDynamic, image.Len()-sizeOfDynamic)
	if err != nil {
		return nil, fmt.Errorf("story: static memory: %w", err)
	}

	s, err := New(dynamic, static)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %s story of %d bytes: %d dynamic, %d static",
		s.Version(), image.Len(), dynamic.Len(), static.Len())
	return s, nil
}

// LoadFile reads and loads the story at path.
func LoadFile(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("story: %w", err)
	}
	log.Debugf("read %s", path)
	return Load(data)
}
