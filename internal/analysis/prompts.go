package analysis

// Instruction templates per identify type. Each template orders the model
// to answer with the bracketed single-object fragment the reply parser
// expects: [{'状态':'...','描述':'...'}].
const replyFormatSuffix = "必须按照如下格式返回:[{'状态':'','描述':''}]"

// DefaultPrompts maps every recognized identify type to its instruction
// text. An identify type without an entry here is a validation error, not
// an inference call.
var DefaultPrompts = map[string]string{
	"roadway-flooding": "请分析这张图片的路面，是否存在明显的积水或内涝。" +
		"状态:存在或者不存在;描述:请描述你的理由和思考过程。" + replyFormatSuffix,
	"roadway-pothole": "请分析这张图片的路面，是否存在严重的坑洼或坑槽。" +
		"状态:存在或者不存在;描述:请描述你的理由和思考过程。" + replyFormatSuffix,
	"garbage-pile": "请分析这张图片中是否存在成堆的垃圾或杂物堆放。" +
		"状态:存在或者不存在;描述:请描述你的理由和思考过程。" + replyFormatSuffix,
	"construction-sign": "请分析这张图片的施工区域是否设置了警示标志或围挡。" +
		"状态:存在或者不存在;描述:请描述你的理由和思考过程。" + replyFormatSuffix,
}
