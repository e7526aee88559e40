package relay

import (
	"Relay/storage"
	"fmt"
)

const (
	continuationNotice = "\n\n💡 پاسخ کامل‌تر را می‌توانید با جستجوی جداگانه دریافت کنید."
	captionPrefix      = "🖼️ تصویر برای: "

	processingErrorText = "⚠️ **خطا در پردازش درخواست**\n\n" +
		"لطفاً چند لحظه صبر کرده و دوباره تلاش کنید.\n" +
		"اگر مشکل ادامه داشت، سوال خود را به صورت متفاوت بیان کنید.\n\n" +
		"🔧 برای راهنمایی: /help"

	userNotFoundText = "❌ کاربر یافت نشد. /start را ارسال کنید."
)

func limitReachedText(limit int) string {
	return fmt.Sprintf("❌ **محدودیت روزانه به پایان رسید!**\n\n"+
		"شما امروز %d درخواست خود را استفاده کرده‌اید.\n"+
		"۲۴ ساعت دیگر مجدداً می‌توانید استفاده کنید.\n\n"+
		"📊 برای مشاهده وضعیت: /status", limit)
}

func welcomeText(limit int) string {
	return fmt.Sprintf(`🤖 **به بات هوشمند رایگان خوش آمدید!**

✨ **من می‌توانم:**
• به سوالات شما پاسخ دهم 💬
• در اینترنت جستجو کنم 🔍
• تصاویر ساده تولید کنم 🎨

🆓 **این سرویس کاملاً رایگان است!**
📊 **محدودیت: %d درخواست در روز**

🎯 **کافیست سوال خود را بپرسید:**

مثال‌ها:
• «هوش مصنوعی چیست؟»
• «اخبار تکنولوژی»
• «عکس یک منظره»
• «آموزش پایتون»

از گفتگو با شما خوشحالم! 😊`, limit)
}

func helpText(limit int) string {
	return fmt.Sprintf(`📖 **راهنمای استفاده:**

💬 **چت معمولی:**
هر سوالی دارید بپرسید

🔍 **جستجو در اینترنت:**
از کلماتی مانند «چیست»، «کیست»، «اخبار» استفاده کنید

🎨 **دریافت تصویر:**
از کلماتی مانند «عکس»، «تصویر»، «نقاشی» استفاده کنید

📊 **وضعیت استفاده:**
/status - مشاهده تعداد درخواست‌ها

⚡ **دستورات سریع:**
/start - راهنمای اولیه
/help - راهنمای کامل
/status - وضعیت استفاده

⚠️ **محدودیت‌ها:**
• %d درخواست رایگان در روز
• پاسخ‌ها ممکن است با تأخیر باشد
• سرویس تصویر محدود است

🛠️ **پشتیبانی:**
در صورت مشکل، پیام خود را مجدداً ارسال کنید.`, limit)
}

func statusText(user *storage.UserRecord, limit int) string {
	remaining := limit - user.DailyRequests
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf(`📊 **وضعیت استفاده شما:**

👤 نام: %s
📅 درخواست‌های امروز: %d
🎯 باقیمانده: %d
📈 کل درخواست‌ها: %d

💡 **نکته:** محدودیت‌ها هر ۲۴ ساعت بازنشانی می‌شوند.`, user.FirstName, user.DailyRequests, remaining, user.TotalRequests)
}
