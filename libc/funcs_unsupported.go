//go:build !unix

package libc

import "errors"

type Funcs struct{}

func (f *Funcs) Resolve() error {
	return errors.New("libc interposition is only supported on unix platforms")
}

func Default() *Funcs { return &Funcs{} }
