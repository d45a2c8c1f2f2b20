package imagemanager

import (
	"math/rand"
	"path/filepath"
	"time"
)

// Navigator steps through a listed image slice. Sequential navigation does
// not wrap: Next at the last image and Prev at the first report false so
// callers can disable further stepping.
type Navigator struct {
	images []ImageInfo
	index  int
	rng    *rand.Rand
}

func NewNavigator(images []ImageInfo) *Navigator {
	return &Navigator{
		images: images,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (n *Navigator) Len() int {
	return len(n.images)
}

func (n *Navigator) Current() (ImageInfo, bool) {
	if len(n.images) == 0 {
		return ImageInfo{}, false
	}
	return n.images[n.index], true
}

// SetCurrent positions the navigator on the image at path. Reports whether
// the path was found in the listing.
func (n *Navigator) SetCurrent(path string) bool {
	target := filepath.Clean(path)
	for i, img := range n.images {
		if filepath.Clean(img.Path) == target {
			n.index = i
			return true
		}
	}
	return false
}

func (n *Navigator) Next() (ImageInfo, bool) {
	if len(n.images) == 0 || n.index >= len(n.images)-1 {
		return ImageInfo{}, false
	}
	n.index++
	return n.images[n.index], true
}

func (n *Navigator) Prev() (ImageInfo, bool) {
	if len(n.images) == 0 || n.index <= 0 {
		return ImageInfo{}, false
	}
	n.index--
	return n.images[n.index], true
}

// Random jumps to a uniformly chosen image.
func (n *Navigator) Random() (ImageInfo, bool) {
	if len(n.images) == 0 {
		return ImageInfo{}, false
	}
	if len(n.images) > 1 {
		n.index = n.rng.Intn(len(n.images))
	} else {
		n.index = 0
	}
	return n.images[n.index], true
}

// Reindex re-points the entry at oldPath to newPath, keeping the current
// position valid after a rename batch reports a replacement path.
func (n *Navigator) Reindex(oldPath, newPath string) bool {
	target := filepath.Clean(oldPath)
	for i := range n.images {
		if filepath.Clean(n.images[i].Path) == target {
			n.images[i].Path = newPath
			return true
		}
	}
	return false
}
