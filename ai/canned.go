package ai

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

type cannedReply struct {
	trigger string
	reply   string
}

// checked in order, first substring match wins
var cannedReplies = []cannedReply{
	{trigger: "سلام", reply: "سلام! به بات هوشمند خوش آمدید! 🤖\nچگونه می‌توانم کمک کنم؟"},
	{trigger: "چطوری", reply: "خوبم ممنون! 😊\nشما چطورید؟"},
	{trigger: "خداحافظ", reply: "خداحافظ! موفق باشید 🌟"},
	{trigger: "تشکر", reply: "خواهش می‌کنم! اگر سوال دیگری دارید بپرسید. 💫"},
	{trigger: "help", reply: "من می‌توانم:\n• به سوالات پاسخ دهم\n• در اینترنت جستجو کنم\n• تصاویر ساده تولید کنم\n\nکافیست سوال خود را بپرسید!"},
}

var genericReplies = []string{
	"سوال جالبی پرسیدید! در حال حاضر سرویس اصلی در دسترس نیست. 🔄",
	"متوجه شدم. می‌توانید سوال خود را به صورت واضح‌تر بیان کنید؟ 💭",
	"در حال حاضر امکان پاسخ دقیق وجود ندارد. لطفاً سوال دیگری بپرسید. ⏳",
	"پاسخ به این سوال نیاز به منابع بیشتری دارد. سوال ساده‌تری بپرسید. 💡",
}

// Canned answers without any network. The same prompt always gets the same reply.
func Canned(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, c := range cannedReplies {
		if strings.Contains(lower, c.trigger) {
			return c.reply
		}
	}
	return genericReplies[xxhash.Sum64String(prompt)%uint64(len(genericReplies))]
}
