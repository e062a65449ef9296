package cleaner

import "os"

// Remover performs the actual filesystem removals
type Remover interface {
	Remove(path string) error
	RemoveAll(path string) error
}

// OSRemover removes through the os package
type OSRemover struct{}

func (OSRemover) Remove(path string) error {
	return os.Remove(path)
}

func (OSRemover) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
