package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcorretor/pdfcorretor/internal/pkg/cache"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/database"
)

const (
	proposalAcceptsKey = "proposal:counters:accepts"
	proposalAdjustsKey = "proposal:counters:adjusts"
)

// AddProposalAccept increments the pending accept-click counter for a proposal in Redis
func AddProposalAccept(proposalID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(proposalID), 10)
	return cache.GetClient().HIncrBy(ctx, proposalAcceptsKey, field, 1).Err()
}

// AddProposalAdjust increments the pending adjust-click counter for a proposal in Redis
func AddProposalAdjust(proposalID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(proposalID), 10)
	return cache.GetClient().HIncrBy(ctx, proposalAdjustsKey, field, 1).Err()
}

// FlushAll flushes both click counters to the database
func FlushAll() error {
	if err := flushHashToTable(proposalAcceptsKey, "proposals", "accept_clicks"); err != nil {
		return err
	}
	if err := flushHashToTable(proposalAdjustsKey, "proposals", "adjust_clicks"); err != nil {
		return err
	}
	return nil
}

// flushHashToTable drains a Redis hash atomically and applies batched increments to the proposals table.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		// Some Redis libs return redis.Nil; treat as empty
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	// Collect ids and increments; sort ids for stable SQL
	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE proposals SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN ( ... )
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE id ")
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	db := database.GetDB()
	return db.Exec(builder.String(), args...).Error
}
