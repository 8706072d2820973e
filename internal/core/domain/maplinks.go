package domain

import "net/url"

type MapLinks struct {
	Kakao  string `json:"kakao"`
	Naver  string `json:"naver"`
	Google string `json:"google"`
}

// MapLinksFor builds external map search links for a place name.
func MapLinksFor(name string) MapLinks {
	q := url.PathEscape(name)
	return MapLinks{
		Kakao:  "https://map.kakao.com/link/search/" + q,
		Naver:  "https://map.naver.com/v5/search/" + q,
		Google: "https://www.google.com/maps/search/?api=1&query=" + q,
	}
}
