package campaign

import (
	"sync"

	"github.com/sqids/sqids-go"
)

var (
	sq   *sqids.Sqids
	once sync.Once
)

func getSqids() *sqids.Sqids {
	once.Do(func() {
		var err error
		sq, err = sqids.New(sqids.Options{
			Alphabet:  "k3G7QAe51FCsiWrNOYBUwM6XzZvdLT4j9JhyHKg2cVbxfERq0mSoI8lDpunPat",
			MinLength: 6,
		})
		if err != nil {
			panic("sqids init failed: " + err.Error())
		}
	})
	return sq
}

// InviteCodeFromSeq 把单调递增的序号编成短邀请码。
// 序号永不复用，所以邀请码天然唯一；唯一索引只是兜底。
func InviteCodeFromSeq(seq uint64) (string, error) {
	return getSqids().Encode([]uint64{seq})
}
