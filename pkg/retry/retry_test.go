package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, uint64(DefaultMaxRetries), cfg.MaxRetries, "MaxRetries should match DefaultMaxRetries constant.")
	require.Equal(t, DefaultInterval, cfg.Interval, "Interval should match constant.")
}

func TestNewBackOffPolicy(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		MaxRetries: 5,
		Interval:   10 * time.Millisecond,
	}

	bo := newBackOffPolicy(ctx, cfg)
	require.NotNil(t, bo)

	// 固定間隔ポリシーであることを確認: 連続する待機時間が常に同じ
	first := bo.NextBackOff()
	second := bo.NextBackOff()
	require.Equal(t, cfg.Interval, first)
	require.Equal(t, cfg.Interval, second)
}

func TestDo(t *testing.T) {
	// テスト用の高速な設定
	testCfg := Config{MaxRetries: 3, Interval: 1 * time.Millisecond}
	opName := "test_operation"

	// 予期されるエラーメッセージを実装に合わせて正確に生成
	permanentErrText := "致命的なエラーのためリトライを中止: permanent error"
	maxRetriesErrText := fmt.Sprintf("%sに失敗しました: 最大リトライ回数 (%d回) に到達。最終エラー: 一時的なエラーが発生、リトライします: retryable error", opName, testCfg.MaxRetries)

	tests := []struct {
		name          string
		ctx           context.Context
		cfg           Config
		operationName string
		operation     Operation
		shouldRetry   ShouldRetryFunc
		expectedError string
	}{
		{
			name:          "successful operation",
			ctx:           context.Background(),
			cfg:           testCfg,
			operationName: opName,
			operation:     func() error { return nil },
			shouldRetry:   func(err error) bool { return false },
			expectedError: "",
		},
		{
			name:          "retryable error and success within max retries",
			ctx:           context.Background(),
			cfg:           testCfg,
			operationName: opName,
			operation: func() Operation {
				attempt := 0
				return func() error {
					attempt++
					if attempt < 3 {
						return errors.New("retryable error")
					}
					return nil
				}
			}(),
			shouldRetry:   func(err error) bool { return err.Error() == "retryable error" },
			expectedError: "",
		},
		{
			name:          "permanent error",
			ctx:           context.Background(),
			cfg:           testCfg,
			operationName: opName,
			operation: func() error {
				return errors.New("permanent error")
			},
			// 判定関数が false を返すと、即座に永続エラーとして終了する
			shouldRetry:   func(err error) bool { return false },
			expectedError: permanentErrText,
		},
		{
			name:          "context canceled",
			ctx:           func() context.Context { ctx, cancel := context.WithCancel(context.Background()); cancel(); return ctx }(),
			cfg:           testCfg,
			operationName: opName,
			operation: func() error {
				// コンテキストエラーを誘発するために、リトライ対象のエラーを返す
				return errors.New("some error")
			},
			shouldRetry:   func(err error) bool { return true },
			// 期待値はコンテキストエラー処理後のメッセージ (containsで検証)
			expectedError: "test_operationに失敗しました: コンテキストタイムアウト/キャンセル: context canceled",
		},
		{
			name:          "max retries exceeded",
			ctx:           context.Background(),
			cfg:           testCfg,
			operationName: opName,
			operation: func() error {
				return errors.New("retryable error")
			},
			shouldRetry:   func(err error) bool { return true },
			expectedError: maxRetriesErrText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Do(tt.ctx, tt.cfg, tt.operationName, tt.operation, tt.shouldRetry)

			if tt.expectedError != "" {
				require.Error(t, err)

				// コンテキストエラーは元のエラーをラップしているため、Containsを使用
				if tt.name == "context canceled" {
					require.Contains(t, err.Error(), tt.expectedError)
				} else {
					require.Equal(t, tt.expectedError, err.Error())
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDo_RespectsPermanentError(t *testing.T) {
	testCfg := Config{MaxRetries: 3, Interval: 1 * time.Millisecond}

	attempts := 0
	op := func() error {
		attempts++
		return backoff.Permanent(errors.New("wrapped permanent"))
	}

	err := Do(context.Background(), testCfg, "permanent_op", op, func(err error) bool { return true })
	require.Error(t, err)
	require.Equal(t, 1, attempts, "a pre-wrapped permanent error must not be retried")
}
