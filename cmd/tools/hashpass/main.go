package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// 生成 bcrypt 哈希；带用户名时顺便输出可直接粘进 mongosh 的
// 管理员种子语句。
func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		log.Fatal("usage: go run ./cmd/tools/hashpass <password> [username]")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	if len(os.Args) == 3 {
		fmt.Printf("db.users.insertOne({username: %q, passwordHash: %q, role: \"admin\", createdAt: new Date()})\n",
			os.Args[2], string(hash))
		return
	}
	fmt.Println(string(hash))
}
