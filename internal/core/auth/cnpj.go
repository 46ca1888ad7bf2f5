package auth

import (
	"errors"
	"strings"
)

var ErrInvalidCNPJ = errors.New("CNPJ inválido")

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// NormalizeCNPJ mantém só os dígitos e valida os dígitos verificadores.
func NormalizeCNPJ(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if !validCNPJ(digits) {
		return "", ErrInvalidCNPJ
	}
	return digits, nil
}

func validCNPJ(digits string) bool {
	if len(digits) != 14 {
		return false
	}
	if strings.Count(digits, digits[:1]) == 14 {
		return false
	}
	nums := make([]int, 14)
	for i := range digits {
		nums[i] = int(digits[i] - '0')
	}
	d1 := cnpjDigit(nums[:12], cnpjWeights1)
	d2 := cnpjDigit(append(nums[:12:12], d1), cnpjWeights2)
	return nums[12] == d1 && nums[13] == d2
}

func cnpjDigit(nums, weights []int) int {
	sum := 0
	for i, n := range nums {
		sum += n * weights[i]
	}
	if mod := sum % 11; mod >= 2 {
		return 11 - mod
	}
	return 0
}
