package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/djherbis/times"
	"github.com/gobwas/glob"
	"github.com/minio/minio-go/v7"

	"Travel_Companion/backend/go/internal/knowledge_service/loader"
	"Travel_Companion/backend/go/internal/knowledge_service/splitter"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// Ingestor 把 MinIO 里的旅行指南文档摄取进景点知识库：下载、
// 提取文本、切块，每个块作为一条 POI 知识写入。块的 ID 由来源和
// 块序号哈希得出，重复摄取同一份文档是幂等的。
type Ingestor struct {
	store    *minio.Client
	bucket   string
	pois     *Service
	splitter *splitter.Splitter
	log      *logger.Logger
}

// IngestReport 汇总一次摄取的结果。
type IngestReport struct {
	Objects  int      `json:"objects"`
	Chunks   int      `json:"chunks"`
	Failures int      `json:"failures"`
	Sources  []string `json:"sources"`
}

// NewIngestor 创建摄取管道。
func NewIngestor(store *minio.Client, bucket string, pois *Service) *Ingestor {
	return &Ingestor{
		store:    store,
		bucket:   bucket,
		pois:     pois,
		splitter: splitter.New(0),
		log:      logger.New("knowledge_ingest", "", ""),
	}
}

// IngestBucket 摄取存储桶中所有匹配 pattern 的对象。pattern 为空
// 时摄取全部对象。单个对象失败只计数并继续，不中断整批摄取。
func (ing *Ingestor) IngestBucket(ctx context.Context, pattern string) (*IngestReport, error) {
	var matcher glob.Glob
	if pattern != "" {
		var err error
		matcher, err = glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("无效的对象匹配模式 %q: %w", pattern, err)
		}
	}

	report := &IngestReport{}
	objects := ing.store.ListObjects(ctx, ing.bucket, minio.ListObjectsOptions{Recursive: true})
	for object := range objects {
		if object.Err != nil {
			return report, fmt.Errorf("枚举对象失败: %w", object.Err)
		}
		if matcher != nil && !matcher.Match(object.Key) {
			continue
		}

		chunks, err := ing.ingestObject(ctx, object.Key)
		if err != nil {
			ing.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "ingest_error"}).
				Error("摄取对象失败: " + object.Key)
			report.Failures++
			continue
		}

		report.Objects++
		report.Chunks += chunks
		report.Sources = append(report.Sources, object.Key)
	}

	ing.log.WithPayload(map[string]interface{}{
		"objects": report.Objects, "chunks": report.Chunks, "failures": report.Failures,
	}).Info("指南摄取完成")
	return report, nil
}

// ingestObject 下载并摄取单个对象，返回写入的块数。
func (ing *Ingestor) ingestObject(ctx context.Context, objectKey string) (int, error) {
	tmp, err := os.CreateTemp("", "guide-*"+filepath.Ext(objectKey))
	if err != nil {
		return 0, fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := ing.store.FGetObject(ctx, ing.bucket, objectKey, tmpPath, minio.GetObjectOptions{}); err != nil {
		return 0, fmt.Errorf("下载对象失败: %w", err)
	}

	if spec, err := times.Stat(tmpPath); err == nil {
		ing.log.WithPayload(map[string]interface{}{
			"object": objectKey, "downloaded_at": spec.ModTime(),
		}).Info("对象已下载")
	}

	docLoader, err := loader.ForFile(tmpPath)
	if err != nil {
		return 0, err
	}
	text, err := docLoader.Load(ctx, tmpPath)
	if err != nil {
		return 0, fmt.Errorf("提取文本失败: %w", err)
	}

	return ing.ingestText(ctx, objectKey, text)
}

// IngestWebPage 抓取一个网页并把其内容摄取进知识库。
func (ing *Ingestor) IngestWebPage(ctx context.Context, url string) (*IngestReport, error) {
	text, err := loader.NewWebLoader().Load(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("抓取网页失败: %w", err)
	}

	chunks, err := ing.ingestText(ctx, url, text)
	if err != nil {
		return nil, err
	}
	return &IngestReport{Objects: 1, Chunks: chunks, Sources: []string{url}}, nil
}

// ingestText 切块并逐块 upsert。块 ID 由来源和块序号决定，
// 重复摄取覆盖旧块而不是追加。
func (ing *Ingestor) ingestText(ctx context.Context, source, text string) (int, error) {
	chunks := ing.splitter.Split(text)
	written := 0
	for i, chunk := range chunks {
		record := &models.POIRecord{
			ID:          chunkID(source, i),
			Name:        chunkTitle(chunk),
			Description: chunk,
			Source:      source,
		}
		if err := ing.pois.Upsert(ctx, record); err != nil {
			return written, fmt.Errorf("写入第 %d 块失败: %w", i, err)
		}
		written++
	}
	return written, nil
}

// chunkID 为一个块生成确定性 ID。
func chunkID(source string, index int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s#%d", source, index)))
	return hex.EncodeToString(sum[:])
}

// chunkTitle 取块的第一行作为条目名称，去掉 Markdown 标题记号，
// 超长时截断。
func chunkTitle(chunk string) string {
	line := chunk
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(strings.TrimLeft(line, "# "))
	if line == "" {
		line = "Untitled section"
	}

	runes := []rune(line)
	if len(runes) > 80 {
		line = string(runes[:80])
	}
	return line
}
