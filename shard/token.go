package shard

// Token is an optional routing token. The zero value carries no token and
// makes the pool pick a shard at random.
type Token struct {
	value int64
	valid bool
}

func NewToken(value int64) Token {
	return Token{value: value, valid: true}
}

func (t Token) Value() int64 {
	return t.value
}

func (t Token) Valid() bool {
	return t.valid
}
