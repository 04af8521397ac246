package retry_test

import (
	"fmt"
	"io"
	"net/http"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"visual-comparator/internal/retry"
)

func TestCheckResponse(t *testing.T) {
	type in struct {
		first *http.Response
	}

	type want struct {
		first bool
	}

	tests := []struct {
		name     string
		receiver *retry.On
		in       in
		want     want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() *retry.On {
				o, _ := retry.NewRetryOnFromString("5xx")
				return o
			}(),
			in{
				&http.Response{StatusCode: 500},
			},
			want{
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() *retry.On {
				o, _ := retry.NewRetryOnFromString("5xx")
				return o
			}(),
			in{
				&http.Response{StatusCode: 404},
			},
			want{
				false,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() *retry.On {
				o, _ := retry.NewRetryOnFromString("gateway-error")
				return o
			}(),
			in{
				&http.Response{StatusCode: 502},
			},
			want{
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() *retry.On {
				o, _ := retry.NewRetryOnFromString("gateway-error")
				return o
			}(),
			in{
				&http.Response{StatusCode: 500},
			},
			want{
				false,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() *retry.On {
				o, _ := retry.NewRetryOnFromString("retriable-4xx")
				return o
			}(),
			in{
				&http.Response{StatusCode: 409},
			},
			want{
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			func() *retry.On {
				o, _ := retry.NewRetryOnFromString("425")
				return o
			}(),
			in{
				&http.Response{StatusCode: 425},
			},
			want{
				true,
			},
		},
	}
	for _, tt := range tests {
		name := tt.name
		receiver := tt.receiver
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := receiver.CheckResponse(in.first)
			if diff := cmp.Diff(want.first, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckError(t *testing.T) {
	o := retry.NewDefaultRetryOn()

	t.Run("EOFIsRetriable", func(t *testing.T) {
		if !o.CheckError(io.EOF) {
			t.Errorf("Expected io.EOF to be retriable")
		}
	})

	t.Run("PlainErrorIsNotRetriable", func(t *testing.T) {
		if o.CheckError(fmt.Errorf("fake")) {
			t.Errorf("Expected plain error to not be retriable")
		}
	})
}
