package utils

import (
	"math/rand"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"github.com/rotadesk/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var firstNames = []string{
	"Oliver", "Amelia", "Jack", "Isla", "Harry", "Ava", "George", "Mia", "Noah", "Freya",
	"Leo", "Grace", "Arthur", "Lily", "Oscar", "Ella", "Theo", "Sofia", "Luca", "Ruby",
}

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "杰", "娟", "明", "磊",
	"洋", "霞", "飞", "玲", "华", "平", "辉", "梅", "鹏", "欣",
}

func GenerateRandomChineseName(r *rand.Rand) string {
	surname := commonSurnames[r.Intn(len(commonSurnames))]
	nameLength := r.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[r.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// GenerateRandomStaffName mixes English first names and Chinese full names, the way a
// London kitchen roster tends to look.
func GenerateRandomStaffName(r *rand.Rand) string {
	if r.Intn(3) == 0 {
		return GenerateRandomChineseName(r)
	}
	return firstNames[r.Intn(len(firstNames))]
}

// LoginFromName turns a display name into an e-mail local part. Han characters are
// romanised with pinyin; anything that is not a letter or digit is dropped.
func LoginFromName(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		for _, ch := range part {
			switch {
			case unicode.Is(unicode.Han, ch):
				for _, syllable := range pinyin.LazyConvert(string(ch), nil) {
					b.WriteString(syllable)
				}
			case ch < unicode.MaxASCII && (unicode.IsLetter(ch) || unicode.IsDigit(ch)):
				b.WriteRune(unicode.ToLower(ch))
			}
		}
		b.WriteByte('.')
	}
	return strings.TrimRight(b.String(), ".")
}

var digits = "0123456789"

// GenerateEmail builds a unique-looking address for name by appending a short digit suffix.
func GenerateEmail(r *rand.Rand, name, emailDomain string) string {
	login := LoginFromName(name)
	if login == "" {
		login = "staff"
	}

	digitsLength := r.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		login += string(digits[r.Intn(len(digits))])
	}

	return login + "@" + emailDomain
}

// GenerateAccount builds an account with a bcrypt hash of password. cost 0 means
// bcrypt.DefaultCost.
func GenerateAccount(r *rand.Rand, name, password, emailDomain string, cost int) (*domain.Account, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, err
	}

	return &domain.Account{
		Email:        GenerateEmail(r, name, emailDomain),
		PasswordHash: string(passwordHash),
		FullName:     name,
	}, nil
}

func GenerateRandomRoleTag(r *rand.Rand, tags []string) string {
	return tags[r.Intn(len(tags))]
}

// GenerateRandomWorkDays picks n distinct day offsets of a week with a Fisher-Yates shuffle.
func GenerateRandomWorkDays(r *rand.Rand, n int) []int {
	days := []int{0, 1, 2, 3, 4, 5, 6}

	for i := len(days) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	if n > len(days) {
		n = len(days)
	}
	return days[:n]
}
