package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

var (
	errNegativeLength = errors.New("length must be non-negative")
	errEmptyAlphabet  = errors.New("alphabet must not be empty")
	errTooManyClasses = errors.New("length is shorter than the number of character classes")
)

// RandomString returns an unbiased crypto-random string drawn from alphabet.
func RandomString(length int, alphabet string) (string, error) {
	if length < 0 {
		return "", errNegativeLength
	}
	if length == 0 {
		return "", nil
	}
	if len(alphabet) == 0 {
		return "", errEmptyAlphabet
	}

	value := make([]byte, length)
	for index := range value {
		char, err := pick(alphabet)
		if err != nil {
			return "", err
		}
		value[index] = char
	}
	return string(value), nil
}

// RandomStringWithClasses draws from the union of classes and guarantees at
// least one character of every class, each at a random position.
func RandomStringWithClasses(length int, classes ...string) (string, error) {
	if len(classes) == 0 {
		return "", errEmptyAlphabet
	}
	for _, class := range classes {
		if class == "" {
			return "", errEmptyAlphabet
		}
	}
	if length < len(classes) {
		return "", errTooManyClasses
	}

	value, err := RandomString(length, strings.Join(classes, ""))
	if err != nil {
		return "", err
	}
	buffer := []byte(value)

	positions := make([]int, length)
	for index := range positions {
		positions[index] = index
	}
	for index, class := range classes {
		// partial Fisher-Yates: the first len(classes) slots are distinct
		swap, err := randomIndex(length - index)
		if err != nil {
			return "", err
		}
		positions[index], positions[index+swap] = positions[index+swap], positions[index]

		char, err := pick(class)
		if err != nil {
			return "", err
		}
		buffer[positions[index]] = char
	}
	return string(buffer), nil
}

func pick(alphabet string) (byte, error) {
	position, err := randomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[position], nil
}

func randomIndex(limit int) (int, error) {
	position, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return 0, err
	}
	return int(position.Int64()), nil
}
