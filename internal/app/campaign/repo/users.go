package repo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"tavern.local/internal/platform/auth"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserAlreadyExists = errors.New("Username already exists")
var ErrInvalidUsername = errors.New("Username is not allowed")
var ErrInvalidPassword = errors.New("Password is not allowed")

type UsersRepo struct {
	coll *mongo.Collection
}

func NewUsersRepo(db *mongo.Database) *UsersRepo {
	return &UsersRepo{coll: db.Collection("users")}
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"passwordHash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (u *UsersRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var user User
	err := u.coll.FindOne(dbctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		slog.Error(err.Error())
		return User{}, err
	}
	return user, nil
}

func (u *UsersRepo) FindByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var user User
	err = u.coll.FindOne(dbctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		slog.Error(err.Error())
		return User{}, err
	}
	return user, nil
}

// RegistUser 注册用户，角色固定 player；admin 只通过
// cmd/tools/hashpass 的种子流程产生。用户名撞了靠唯一索引报错，
// 不做先查后插。
func (u *UsersRepo) RegistUser(ctx context.Context, name string, password string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 32 {
		return "", ErrInvalidUsername
	}
	if len(password) < 8 || len(password) > 72 {
		return "", ErrInvalidPassword
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error(err.Error())
		return "", err
	}
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := u.coll.InsertOne(dbctx, User{
		Username:     name,
		PasswordHash: string(passwordHash),
		Role:         auth.RolePlayer,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrUserAlreadyExists
		}
		slog.Error(err.Error())
		return "", err
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

// CheckPassword 校验明文密码，失败统一返回 ErrUserNotFound 之外的
// 认证错误细节不往外漏。
func (u *UsersRepo) CheckPassword(user User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
