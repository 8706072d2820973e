package vision

import (
	"fmt"
	"strings"
)

// BuildInstruction renders the fixed extraction instruction over the closed
// category vocabulary.
func BuildInstruction(categories []string) string {
	vocabulary := strings.Join(categories, " / ")
	return fmt.Sprintf(`이 이미지는 SNS 장소 추천 게시물을 캡처한 화면입니다.

이미지에 나오는 모든 장소를 찾아 아래 JSON 형식으로만 답하세요:

{
  "places": [
    {
      "name": "장소 이름 (이미지에 적힌 그대로)",
      "suggestedCategory": "다음 중 하나: %s",
      "suggestedLocation": "동네 또는 역 이름 (예: 성수동, 홍대, 강남역). 알 수 없으면 \"\"",
      "confidence": 0.0
    }
  ]
}

규칙:
- 설명 문구와 해시태그는 빼고 장소 이름만 적습니다.
- 위치는 짧게 적고, 이미지에서 알 수 없으면 빈 문자열로 둡니다.
- 카테고리는 위 목록에 있는 값만 사용합니다.
- confidence는 0.0 이상 1.0 이하의 숫자입니다.
- 장소를 하나도 빠뜨리지 마세요.
- 코드 블록이나 설명 없이 JSON만 반환합니다.`, vocabulary)
}
