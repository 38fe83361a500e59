package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/suiyueran97/vision-engine/internal/domain"
)

// Reply fragment keys mandated by the prompt contract.
const (
	replyKeyStatus = "状态"
	replyKeyDesc   = "描述"
)

// fragmentPattern finds the first bracketed single-object fragment inside
// a free-text reply. The scan is tolerant (the model may surround the
// fragment with prose); the parse of the matched fragment is strict.
var fragmentPattern = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)

// ParseReply extracts the structured verdict for one identify type from
// the backend's raw reply text. Any reply lacking a well-formed fragment,
// or whose fragment fails strict parsing, yields an error wrapping
// domain.ErrParse; the caller records it as the sub-task's failure.
func ParseReply(identifyType, reply string) (domain.JudgmentInfo, error) {
	match := fragmentPattern.FindString(reply)
	if match == "" {
		return domain.JudgmentInfo{}, fmt.Errorf("%w: no structured fragment in reply", domain.ErrParse)
	}

	// Models frequently emit the fragment with single quotes.
	normalized := strings.ReplaceAll(match, "'", `"`)

	var objects []map[string]string
	if err := json.Unmarshal([]byte(normalized), &objects); err != nil {
		return domain.JudgmentInfo{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if len(objects) == 0 {
		return domain.JudgmentInfo{}, fmt.Errorf("%w: empty fragment", domain.ErrParse)
	}

	status, ok := objects[0][replyKeyStatus]
	if !ok {
		return domain.JudgmentInfo{}, fmt.Errorf("%w: fragment missing %q field", domain.ErrParse, replyKeyStatus)
	}
	desc, ok := objects[0][replyKeyDesc]
	if !ok {
		return domain.JudgmentInfo{}, fmt.Errorf("%w: fragment missing %q field", domain.ErrParse, replyKeyDesc)
	}

	return domain.JudgmentInfo{
		IdentifyType: identifyType,
		Result:       status,
		SceneDesc:    desc,
	}, nil
}
