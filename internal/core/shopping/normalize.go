package shopping

import "strings"

// 法文重音折疊表
var accentFolder = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ã", "a", "ä", "a", "å", "a",
	"è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i",
	"ò", "o", "ó", "o", "ô", "o", "õ", "o", "ö", "o",
	"ù", "u", "ú", "u", "û", "u", "ü", "u",
	"ç", "c",
)

// NormalizeName 將食材名稱轉為彙整用的鍵：小寫、去頭尾空白、合併空白並去除重音。
// 不處理單複數。
func NormalizeName(name string) string {
	folded := strings.ToLower(name)
	folded = strings.Join(strings.Fields(folded), " ")
	return accentFolder.Replace(folded)
}
