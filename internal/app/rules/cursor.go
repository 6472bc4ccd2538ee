package rules

import (
	"encoding/base64"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cursor 是键集分页的游标：上一页最后一条的 (updatedAt, _id)。
// 零值表示“从头开始”。
type Cursor struct {
	UpdatedAt time.Time
	ID        primitive.ObjectID
}

func (c Cursor) IsZero() bool {
	return c.UpdatedAt.IsZero() && c.ID.IsZero()
}

// EncodeCursor 把排序键编码成不透明 token：
// base64("<RFC3339Nano UTC>|<hex id>")。客户端不该解析它。
func EncodeCursor(updatedAt time.Time, id primitive.ObjectID) string {
	raw := updatedAt.UTC().Format(time.RFC3339Nano) + "|" + id.Hex()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor 解析 token。任何畸形输入（坏 base64、缺分隔符、
// 坏时间戳、坏 id）一律当作零游标处理，从第一页开始，不报错。
func DecodeCursor(token string) Cursor {
	if token == "" {
		return Cursor{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}
	}
	ts, idHex, ok := strings.Cut(string(raw), "|")
	if !ok {
		return Cursor{}
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}
	}
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return Cursor{}
	}
	return Cursor{UpdatedAt: at.UTC(), ID: id}
}
