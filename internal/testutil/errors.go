package testutil

import "errors"

var (
	errStorageFault    = errors.New("testutil: simulated storage fault")
	errIndexOutOfRange = errors.New("testutil: highest index exceeds total tx out count")
)
