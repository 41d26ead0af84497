package util

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID идентификатор, который внешняя платформа присылает то строкой, то числом.
type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) IsEmpty() bool {
	return strings.TrimSpace(string(id)) == ""
}

// UnmarshalJSON не возвращает ошибок: неподдерживаемые значения дают пустой ID.
func (id *ID) UnmarshalJSON(b []byte) error {
	*id = ""

	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*id = ID(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*id = ID(FormatNumber(json.Number(b)))
	}

	return nil
}

// FormatNumber приводит число к каноничной строке: 42.0 -> "42", 4.50 -> "4.5".
func FormatNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err != nil {
		return string(n)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
