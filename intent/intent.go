// Package intent decides what a user wants from the words in the message.
package intent

import "strings"

type Kind int

const (
	Chat Kind = iota
	Search
	Image
)

func (k Kind) String() string {
	switch k {
	case Search:
		return "search"
	case Image:
		return "image"
	default:
		return "chat"
	}
}

// KeywordsVersion changes whenever SearchKeywords or ImageKeywords are edited.
const KeywordsVersion = 2

// SearchKeywords are informational triggers; they win over ImageKeywords.
var SearchKeywords = []string{
	"چیست", "کیست", "کجاست", "اخبار", "قیمت", "چطور", "چگونه",
	"آموزش", "تعریف", "معنی", "علت", "دلیل", "نتایج", "تاریخ",
	"what is", "who is", "where is", "news", "price", "how to",
}

var ImageKeywords = []string{
	"عکس", "تصویر", "نقاشی", "رسم",
	"کارتون", "لوگو", "طرح", "پیکسل", "گرافیک",
	"photo", "image", "picture", "drawing", "logo",
}

// Classify maps message text to an intent. It never fails.
func Classify(text string) Kind {
	lower := strings.ToLower(text)
	if containsAny(lower, SearchKeywords) {
		return Search
	}
	if containsAny(lower, ImageKeywords) {
		return Image
	}
	return Chat
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
