package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/d60-Lab/socialgraph/internal/model"
)

func BenchmarkFollowWrite_MirroredSets(b *testing.B) {
	_, rdb := setupRedis(b)
	repo := NewUserRepository(rdb)
	ctx := context.Background()

	users := make([]string, 1000)
	for i := range users {
		users[i] = fmt.Sprintf("u%04d", i)
		_ = repo.Create(ctx, &model.User{UID: users[i], Username: users[i]})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rand.Intn(len(users))]
		to := users[rand.Intn(len(users))]
		if from == to {
			continue
		}
		_, _ = repo.Link(ctx, to, model.RelationFollowers, from)
	}
}

func BenchmarkListMembersWithIdentities(b *testing.B) {
	_, rdb := setupRedis(b)
	repo := NewUserRepository(rdb)
	ctx := context.Background()

	// 构造：u0 有 N 个粉丝
	const N = 2000
	_ = repo.Create(ctx, &model.User{UID: "u0", Username: "u0"})
	for i := 1; i <= N; i++ {
		uid := fmt.Sprintf("u%d", i)
		_ = repo.Create(ctx, &model.User{UID: uid, Username: "name" + uid, Fullname: "Full " + uid})
		_, _ = repo.AddMember(ctx, "u0", model.RelationFollowers, uid)
	}

	b.ResetTimer()
	b.Run("Members", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.Members(ctx, "u0", model.RelationFollowers)
		}
	})
	b.Run("MembersResolved", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			uids, _ := repo.Members(ctx, "u0", model.RelationFollowers)
			_, _ = repo.Identities(ctx, uids)
		}
	})
}
