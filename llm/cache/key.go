package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	llmpkg "github.com/BaSui01/hiveflow/llm"
	"github.com/BaSui01/hiveflow/types"
)

// GenerateKey 用请求哈希生成缓存键。TraceID 与消息时间戳不参与哈希,
// 否则每次请求都会得到不同的键。
func GenerateKey(req *llmpkg.ChatRequest) string {
	shadow := *req
	shadow.TraceID = ""
	shadow.Messages = make([]types.Message, len(req.Messages))
	for i, m := range req.Messages {
		m.Timestamp = time.Time{}
		shadow.Messages[i] = m
	}
	data, err := json.Marshal(&shadow)
	if err != nil {
		// fallback: 使用 fmt.Sprintf 生成确定性字符串避免 key 碰撞
		data = []byte(fmt.Sprintf("%v", &shadow))
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}
