package label

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_Empty(t *testing.T) {
	assert.Nil(t, SplitText("", 100))
	assert.Nil(t, SplitText("   \n\t ", 100))
}

func TestSplitText_UnderMax(t *testing.T) {
	chunks := SplitText("  해열 및 진통에 사용한다.  ", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "해열 및 진통에 사용한다.", chunks[0])
}

func TestSplitText_SentenceBoundaries(t *testing.T) {
	text := "첫 번째 문장입니다. 두 번째 문장입니다. 세 번째 문장입니다."
	chunks := SplitText(text, 15)
	require.Len(t, chunks, 3)
	assert.Equal(t, "첫 번째 문장입니다.", chunks[0])
	assert.Equal(t, "두 번째 문장입니다.", chunks[1])
	assert.Equal(t, "세 번째 문장입니다.", chunks[2])
}

func TestSplitText_GreedyAccumulation(t *testing.T) {
	// Two short sentences fit one chunk, the third starts the next.
	text := "가나다. 라마바. 사아자차카타파하 아주 긴 문장. 끝."
	chunks := SplitText(text, 10)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "가나다. 라마바.", chunks[0])
}

func TestSplitText_LengthBound(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("이 약은 해열 진통 소염제로 분류된다. ")
	}
	const maxLen = 100
	chunks := SplitText(b.String(), maxLen)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), maxLen)
	}
}

func TestSplitText_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("가", 50)
	text := "짧은 문장. " + long + ". 또 짧은 문장."
	chunks := SplitText(text, 20)
	found := false
	for _, c := range chunks {
		if strings.Contains(c, long) {
			found = true
			assert.Equal(t, long+".", c)
		}
	}
	assert.True(t, found, "oversized sentence must survive untruncated")
}

func TestSplitText_RoundTrip(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("복용 전 반드시 의사와 상의하십시오! 임부는 복용하지 마십시오? 보관은 실온에서 합니다. ")
	}
	text := b.String()
	chunks := SplitText(text, 80)
	require.NotEmpty(t, chunks)

	strip := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}
	assert.Equal(t, strip(text), strip(strings.Join(chunks, "")))
}

func TestSplitText_DefaultMax(t *testing.T) {
	text := strings.Repeat("가", 500)
	chunks := SplitText(text, 0)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}
