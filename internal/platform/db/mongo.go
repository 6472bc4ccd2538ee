package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// New 连接 MongoDB 并返回业务数据库句柄。
// 传入的 ctx 控制连接超时（调用方一般给 3s）。
func New(ctx context.Context, uri string, dbName string, opts ...*options.ClientOptions) (*mongo.Database, func(context.Context) error, error) {
	all := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, opts...)
	client, err := mongo.Connect(ctx, all...)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client.Database(dbName), client.Disconnect, nil
}
