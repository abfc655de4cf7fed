package log

// Field is an extra key attached to a component logger, for example the
// node address of a pool.
type Field struct {
	Name  string
	Value interface{}
}
