//go:build !linux

package rt

import "errors"

func pin(int) (func(), error) {
	return nil, errors.New("cpu affinity is only supported on linux")
}
