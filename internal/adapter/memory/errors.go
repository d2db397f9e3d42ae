package memory

import "fmt"

func errDuplicate(entity, id string) error {
	return fmt.Errorf("%s %s already exists", entity, id)
}
