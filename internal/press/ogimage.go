package press

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractOGImage はHTMLのheadタグからog:imageメタタグの画像URLを抽出する。
// 相対URLはbaseURLを基準に絶対URLに解決される。httpsスキーム以外の
// 画像URLは採用しない（掲載カードに混在コンテンツを持ち込まないため）。
// 見つからない場合は空文字列を返す。
func ExtractOGImage(htmlBody []byte, baseURL string) string {
	baseU, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inHead := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "head" {
				inHead = true
				continue
			}

			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return ""
			}

			if !inHead || tagName != "meta" || !hasAttr {
				continue
			}

			// meta要素の属性を解析
			var property, content string
			for {
				key, val, more := tokenizer.TagAttr()
				k := strings.ToLower(string(key))
				v := string(val)
				switch k {
				case "property":
					property = strings.ToLower(v)
				case "content":
					content = v
				}
				if !more {
					break
				}
			}

			if property != "og:image" || content == "" {
				continue
			}

			resolved := resolveImageURL(baseU, content)
			if resolved == "" {
				continue
			}
			return resolved

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "head" {
				return ""
			}
		}
	}
}

// resolveImageURL は相対URLをベースURLを基準に絶対URLに解決する。
// httpsスキーム以外は空文字列を返す。
func resolveImageURL(base *url.URL, rawRef string) string {
	ref, err := url.Parse(rawRef)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
