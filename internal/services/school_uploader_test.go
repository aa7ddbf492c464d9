package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmath/problempipeline/internal/gcp"
	"github.com/realmath/problempipeline/internal/models"
)

// fakeCollection records committed writes; pending writes live in each
// fakeWriteBatch until Commit.
type fakeCollection struct {
	existing   []*firestore.DocumentRef
	failDelete bool
	failSet    bool

	deleted []string
	written []models.SchoolDocument
	newDocs int
}

type fakeWriteBatch struct {
	c       *fakeCollection
	deletes []string
	sets    []models.SchoolDocument
}

func (b *fakeWriteBatch) Set(dr *firestore.DocumentRef, data any) {
	b.sets = append(b.sets, data.(models.SchoolDocument))
}

func (b *fakeWriteBatch) Update(dr *firestore.DocumentRef, updates []firestore.Update) {}

func (b *fakeWriteBatch) Delete(dr *firestore.DocumentRef) {
	b.deletes = append(b.deletes, dr.ID)
}

func (b *fakeWriteBatch) Commit(ctx context.Context) error {
	if len(b.deletes) > 0 && b.c.failDelete {
		return errors.New("rpc error: code = PermissionDenied")
	}
	if len(b.sets) > 0 && b.c.failSet {
		return errors.New("rpc error: code = Unavailable")
	}
	b.c.deleted = append(b.c.deleted, b.deletes...)
	b.c.written = append(b.c.written, b.sets...)
	return nil
}

func (c *fakeCollection) uploader(limit int) *SchoolUploader {
	return &SchoolUploader{
		collection: "schools",
		batchLimit: limit,
		newBatch: func() gcp.BatchWriter {
			return &fakeWriteBatch{c: c}
		},
		eachDoc: func(ctx context.Context, fn func(*firestore.DocumentRef) error) error {
			for _, ref := range c.existing {
				if err := fn(ref); err != nil {
					return err
				}
			}
			return nil
		},
		newDoc: func() *firestore.DocumentRef {
			c.newDocs++
			return &firestore.DocumentRef{ID: fmt.Sprintf("new-%d", c.newDocs)}
		},
	}
}

func existingRefs(n int) []*firestore.DocumentRef {
	refs := make([]*firestore.DocumentRef, 0, n)
	for i := range n {
		refs = append(refs, &firestore.DocumentRef{ID: fmt.Sprintf("old-%d", i)})
	}
	return refs
}

var schoolList = []models.School{
	{SchoolName: "서울대치중학교", Location: "서울특별시 강남구"},
	{SchoolName: "부산해운대고등학교", Location: "부산광역시 해운대구"},
	{SchoolName: "한국과학영재학교", Location: "부산광역시 부산진구"},
}

func TestSchoolUploader_ReplacesCollection(t *testing.T) {
	c := &fakeCollection{existing: existingRefs(3)}

	summary, err := c.uploader(2).Upload(context.Background(), schoolList)
	require.NoError(t, err)

	assert.Equal(t, SchoolUploadSummary{Deleted: 3, Uploaded: 3}, summary)
	assert.Equal(t, []string{"old-0", "old-1", "old-2"}, c.deleted)
	require.Len(t, c.written, 3)
	assert.Equal(t, models.SchoolDocument{
		SchoolName:     "서울대치중학교",
		SchoolNameOnly: "대치중학교",
		Location:       "서울특별시 강남구",
	}, c.written[0])
	assert.Equal(t, "해운대고등학교", c.written[1].SchoolNameOnly)
	assert.Equal(t, "한국과학영재학교", c.written[2].SchoolNameOnly)
}

func TestSchoolUploader_FailedDeleteWritesNothing(t *testing.T) {
	c := &fakeCollection{existing: existingRefs(5), failDelete: true}

	summary, err := c.uploader(2).Upload(context.Background(), schoolList)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete existing schools")

	assert.Empty(t, c.written)
	assert.Zero(t, c.newDocs)
	assert.Zero(t, summary.Uploaded)
	assert.Zero(t, summary.Deleted)
}

func TestSchoolUploader_FailedWritesAreCounted(t *testing.T) {
	c := &fakeCollection{failSet: true}

	summary, err := c.uploader(2).Upload(context.Background(), schoolList)
	require.NoError(t, err)

	assert.Equal(t, SchoolUploadSummary{Failed: 3}, summary)
	assert.Empty(t, c.written)
}

func TestSchoolUploader_ListErrorAborts(t *testing.T) {
	c := &fakeCollection{}
	u := c.uploader(2)
	u.eachDoc = func(ctx context.Context, fn func(*firestore.DocumentRef) error) error {
		return errors.New("failed to iterate documents: unavailable")
	}

	_, err := u.Upload(context.Background(), schoolList)
	require.Error(t, err)
	assert.Empty(t, c.written)
}
