package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/mentorlink/mentordex/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsRedisErr(t *testing.T) {
	tests := []struct {
		name   string
		result rueidis.RedisResult
		substr string
		want   bool
	}{
		{"exact", mock.Result(mock.RedisError("Index already exists")), "index already exists", true},
		{"case_insensitive", mock.Result(mock.RedisError("UNKNOWN INDEX NAME")), "unknown index name", true},
		{"no_match", mock.Result(mock.RedisError("some other failure")), "unknown index name", false},
		{"not_redis_err", mock.ErrorResult(context.DeadlineExceeded), "unknown index name", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := isRedisErr(tc.result.Error(), tc.substr)
			if got != tc.want {
				t.Errorf("isRedisErr(%q) = %v, want %v", tc.substr, got, tc.want)
			}
		})
	}
}

// --- hash.go tests ---

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "mentor:42")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"nickname": mock.RedisString("jay"),
			"rating":   mock.RedisString("4.5"),
		})))

	s := NewStoreForTest(c)
	fields, err := s.HGetAll(context.Background(), "mentor:42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["nickname"] != "jay" || fields["rating"] != "4.5" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestHGetAll_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "mentor:42")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.HGetAll(context.Background(), "mentor:42")
	if !isDBError(err) {
		t.Errorf("expected wrapped db.Error, got %v", err)
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisBlobString("value")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "mykey")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "mykey")
	if !isDBError(err) {
		t.Errorf("expected wrapped db.Error, got %v", err)
	}
	if errors.Is(err, db.ErrKeyNotFound) {
		t.Error("should not be ErrKeyNotFound for network errors")
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "SET" || cmd[1] != "mykey" || cmd[2] != "myvalue" {
				return false
			}
			// Should carry an EX expiration
			for _, arg := range cmd {
				if arg == "EX" {
					return true
				}
			}
			return false
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "mykey", []byte("myvalue"), 60*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.SetWithTTL(context.Background(), "mykey", []byte("myvalue"), 60*time.Second)
	if !isDBError(err) {
		t.Errorf("expected wrapped db.Error, got %v", err)
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE" && cmd[1] == "mentors:idx"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:     "mentors:idx",
		Prefixes: []string{"mentor:"},
		Fields: []db.IndexField{
			{Name: "job", Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: "embedding", Type: db.IndexFieldVector, VectorDim: 1536},
		},
	}
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "mentors:idx",
		Fields: []db.IndexField{{Name: "job", Type: db.IndexFieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "mentors:idx",
		Fields: []db.IndexField{{Name: "job", Type: db.IndexFieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !isDBError(err) {
		t.Errorf("expected wrapped db.Error, got %v", err)
	}
}

func TestIndexExists_True(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "mentors:idx")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("mentors:idx"))))

	s := NewStoreForTest(c)
	exists, err := s.IndexExists(context.Background(), "mentors:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected true")
	}
}

func TestIndexExists_False(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "mentors:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	exists, err := s.IndexExists(context.Background(), "mentors:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected false")
	}
}

func TestIndexExists_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "mentors:idx")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.IndexExists(context.Background(), "mentors:idx")
	if !isDBError(err) {
		t.Errorf("expected wrapped db.Error, got %v", err)
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	_, err := buildCreateArgs(&db.IndexDefinition{Name: "", Fields: []db.IndexField{{Name: "f", Type: db.IndexFieldTag}}})
	if err == nil {
		t.Error("expected error for empty name")
	}

	_, err = buildCreateArgs(&db.IndexDefinition{Name: "test"})
	if err == nil {
		t.Error("expected error for empty fields")
	}
}

func TestBuildFieldArgs_AllTypes(t *testing.T) {
	tests := []struct {
		name  string
		field db.IndexField
		want  string
	}{
		{"tag", db.IndexField{Name: "f", Type: db.IndexFieldTag}, "TAG"},
		{"tag_with_separator", db.IndexField{Name: "f", Type: db.IndexFieldTag, TagSeparator: ","}, "TAG"},
		{"numeric", db.IndexField{Name: "f", Type: db.IndexFieldNumeric}, "NUMERIC"},
		{"text", db.IndexField{Name: "f", Type: db.IndexFieldText}, "TEXT"},
		{"vector_flat", db.IndexField{
			Name: "f", Type: db.IndexFieldVector,
			VectorDim: 128, VectorAlgo: db.VectorFlat,
		}, "VECTOR"},
		{"vector_hnsw", db.IndexField{
			Name: "f", Type: db.IndexFieldVector,
			VectorDim: 1536, VectorAlgo: db.VectorHNSW,
			VectorM: 16, VectorEFConstruct: 200,
		}, "VECTOR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args, err := buildFieldArgs(&tc.field)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(args) < 2 || args[0] != "f" || args[1] != tc.want {
				t.Errorf("unexpected args: %v", args)
			}
		})
	}
}

func TestBuildFieldArgs_UnknownType(t *testing.T) {
	_, err := buildFieldArgs(&db.IndexField{Name: "f", Type: db.IndexFieldType(99)})
	if err == nil {
		t.Error("expected error for unknown field type")
	}
}

func TestBuildVectorFieldArgs_ZeroDim(t *testing.T) {
	_, err := buildVectorFieldArgs(&db.IndexField{Name: "f", Type: db.IndexFieldVector})
	if err == nil {
		t.Error("expected error for zero DIM")
	}
}

// --- search.go tests ---

func TestSearchKNN_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" || cmd[1] != "mentors:idx" {
				return false
			}
			if cmd[2] != "*=>[KNN 2 @embedding $BLOB]" {
				return false
			}
			// PARAMS 2 BLOB <vector> and DIALECT 2 must be present
			var hasBlob, hasDialect bool
			for i, arg := range cmd {
				if arg == "BLOB" && i+1 < len(cmd) && cmd[i+1] == vectorToBytes([]float32{0.1, 0.2}) {
					hasBlob = true
				}
				if arg == "DIALECT" {
					hasDialect = true
				}
			}
			return hasBlob && hasDialect
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("mentor:1"),
			mock.RedisArray(
				mock.RedisString("__embedding_score"), mock.RedisString("0.1"),
				mock.RedisString("nickname"), mock.RedisString("jay"),
			),
			mock.RedisString("mentor:2"),
			mock.RedisArray(
				mock.RedisString("__embedding_score"), mock.RedisString("0.4"),
				mock.RedisString("nickname"), mock.RedisString("kim"),
			),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "mentors:idx",
		Vector:    []float32{0.1, 0.2},
		K:         2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("unexpected result: total=%d entries=%d", result.Total, len(result.Entries))
	}
	if result.Entries[0].Key != "mentor:1" {
		t.Errorf("unexpected key: %s", result.Entries[0].Key)
	}
	// cosine distance 0.1 becomes similarity 0.9
	if math.Abs(result.Entries[0].Score-0.9) > 1e-9 {
		t.Errorf("unexpected score: %f", result.Entries[0].Score)
	}
	if _, ok := result.Entries[0].Fields["__embedding_score"]; ok {
		t.Error("raw distance field should be stripped from Fields")
	}
	if result.Entries[0].Fields["nickname"] != "jay" {
		t.Errorf("unexpected fields: %v", result.Entries[0].Fields)
	}
}

func TestSearchKNN_PreFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[2] == "(-@id:{42})=>[KNN 5 @embedding $BLOB]"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "mentors:idx",
		Vector:    []float32{0.1},
		K:         5,
		PreFilter: "-@id:{42}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchKNN_DistanceClamped(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("mentor:3"),
			mock.RedisArray(mock.RedisString("__embedding_score"), mock.RedisString("1.7")),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "mentors:idx",
		Vector:    []float32{0.1},
		K:         1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entries[0].Score != 0 {
		t.Errorf("similarity should clamp at 0, got %f", result.Entries[0].Score)
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "mentors:idx",
		Vector:    []float32{0.1},
		K:         10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 0 || len(result.Entries) != 0 {
		t.Errorf("expected empty result, got total=%d entries=%d", result.Total, len(result.Entries))
	}
}

func TestSearchKNN_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "mentors:idx",
		Vector:    []float32{0.1},
		K:         10,
	})
	if !isDBError(err) {
		t.Errorf("expected wrapped db.Error, got %v", err)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := &Store{}

	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{Vector: []float32{0.1}, K: 1}); err == nil {
		t.Error("expected error for empty index name")
	}
	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", K: 1}); err == nil {
		t.Error("expected error for empty vector")
	}
	if _, err := s.SearchKNN(context.Background(), &db.KNNQuery{IndexName: "idx", Vector: []float32{0.1}}); err == nil {
		t.Error("expected error for non-positive k")
	}
}

func TestSearchList_Pagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "mentors:idx", "*",
			"LIMIT", "20", "10",
			"RETURN", "1", "nickname",
		)).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(42),
			mock.RedisString("mentor:21"),
			mock.RedisArray(mock.RedisString("nickname"), mock.RedisString("lee")),
			mock.RedisString("mentor:22"),
			mock.RedisArray(mock.RedisString("nickname"), mock.RedisString("park")),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchList(context.Background(), "mentors:idx", "*", 20, 10, []string{"nickname"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 42 {
		t.Errorf("unexpected total: %d", result.Total)
	}
	if len(result.Entries) != 2 || result.Entries[1].Key != "mentor:22" {
		t.Errorf("unexpected entries: %v", result.Entries)
	}
	if result.Entries[1].Fields["nickname"] != "park" {
		t.Errorf("unexpected fields: %v", result.Entries[1].Fields)
	}
}

func TestSearchList_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchList(context.Background(), "mentors:idx", "*", 0, 10, nil)
	if !isDBError(err) {
		t.Errorf("expected wrapped db.Error, got %v", err)
	}
}

func TestVectorToBytes(t *testing.T) {
	v := []float32{1.0, 2.0}
	b := vectorToBytes(v)
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32([]byte(b)[:4])); got != 1.0 {
		t.Errorf("expected little-endian 1.0, got %f", got)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
