package utils

// PermError is an error that retry helpers must treat as permanent.
type PermError string

func (e PermError) Error() string {
	return string(e)
}

func (e PermError) IsPermanent() bool {
	return true
}
