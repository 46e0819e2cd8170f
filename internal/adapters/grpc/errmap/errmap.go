// Package errmap はエラー分類を gRPC ステータスへ写像します。
// 呼び出し側のトランスポート層が本パッケージだけを経由して分類を解釈します。
package errmap

import (
	"errors"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/ogurasousui/workforce-core/internal/core/apperr"
)

// Domain は ErrorInfo に載せるエラードメインです。
const Domain = "workforce-core"

// conflictRetryDelay は再試行可能な競合応答に添付する猶予時間です。
const conflictRetryDelay = 50 * time.Millisecond

// ToStatusError は err を gRPC ステータスエラーへ変換します。nil は nil のまま返します。
// 分類済みエラーには安定コードと構造化詳細を ErrorInfo として添付します。
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return status.Error(codes.Internal, err.Error())
	}

	st := status.New(grpcCode(appErr.Kind), appErr.Message)

	details := []protoadapt.MessageV1{
		&errdetails.ErrorInfo{
			Reason:   appErr.Code,
			Domain:   Domain,
			Metadata: appErr.Details,
		},
	}

	if appErr.Kind == apperr.KindValidation {
		if field, ok := appErr.Details["field"]; ok {
			details = append(details, &errdetails.BadRequest{
				FieldViolations: []*errdetails.BadRequest_FieldViolation{
					{Field: field, Description: appErr.Message},
				},
			})
		}
	}

	if appErr.Kind == apperr.KindConflict && retryable(err) {
		details = append(details, &errdetails.RetryInfo{
			RetryDelay: durationpb.New(conflictRetryDelay),
		})
	}

	detailed, derr := st.WithDetails(details...)
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

func retryable(err error) bool {
	return errors.Is(err, apperr.ErrSerialization) || errors.Is(err, apperr.ErrTxTimeout)
}

func grpcCode(kind apperr.Kind) codes.Code {
	switch kind {
	case apperr.KindValidation:
		return codes.InvalidArgument
	case apperr.KindPermission:
		return codes.PermissionDenied
	case apperr.KindConflict:
		return codes.Aborted
	case apperr.KindNotFound:
		return codes.NotFound
	case apperr.KindDeletedState:
		return codes.FailedPrecondition
	case apperr.KindExternal:
		return codes.Unavailable
	case apperr.KindInternal:
		return codes.Internal
	default:
		return codes.Internal
	}
}
