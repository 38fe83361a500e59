package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suiyueran97/vision-engine/internal/domain"
)

func TestParseReplyWellFormed(t *testing.T) {
	reply := "根据图片分析,[{'状态':'存在','描述':'路面有大面积积水'}] 以上是我的判断。"

	judgment, err := ParseReply("roadway-flooding", reply)
	require.NoError(t, err)
	assert.Equal(t, "roadway-flooding", judgment.IdentifyType)
	assert.Equal(t, "存在", judgment.Result)
	assert.Equal(t, "路面有大面积积水", judgment.SceneDesc)
}

func TestParseReplyDoubleQuotedFragment(t *testing.T) {
	reply := `[{"状态":"不存在","描述":"路面干燥完整"}]`

	judgment, err := ParseReply("roadway-pothole", reply)
	require.NoError(t, err)
	assert.Equal(t, "不存在", judgment.Result)
}

func TestParseReplyPicksFirstFragment(t *testing.T) {
	reply := "[{'状态':'存在','描述':'第一段'}] 其他内容 [{'状态':'不存在','描述':'第二段'}]"

	judgment, err := ParseReply("garbage-pile", reply)
	require.NoError(t, err)
	assert.Equal(t, "第一段", judgment.SceneDesc)
}

func TestParseReplyMultilineFragment(t *testing.T) {
	reply := "结论如下:\n[\n  {'状态':'存在',\n   '描述':'图中可见坑槽'}\n]\n"

	judgment, err := ParseReply("roadway-pothole", reply)
	require.NoError(t, err)
	assert.Equal(t, "存在", judgment.Result)
}

func TestParseReplyFailures(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"no fragment", "图片中存在积水,但我不会按格式回答"},
		{"unbalanced fragment", "[{'状态':'存在'"},
		{"not json after normalization", "[{状态:存在}]"},
		{"missing status key", "[{'描述':'只有描述'}]"},
		{"missing description key", "[{'状态':'存在'}]"},
		{"empty reply", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseReply("roadway-flooding", tc.reply)
			assert.ErrorIs(t, err, domain.ErrParse)
		})
	}
}
