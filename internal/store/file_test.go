package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/store"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

func newSnapshot(jobCount int) *jobs.Snapshot {
	snap := &jobs.Snapshot{
		SavedAt: time.Now().UTC().Truncate(time.Second),
	}
	for i := 0; i < jobCount; i++ {
		snap.Jobs = append(snap.Jobs, jobs.Job{
			ID:        uuid.New(),
			Type:      "video_composition",
			Status:    jobs.StatusCompleted,
			Priority:  jobs.PriorityNormal,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
			InputData: map[string]any{"scene": "intro"},
		})
	}
	return snap
}

var _ = Describe("file store", func() {
	var (
		dir  string
		path string
		s    *store.FileStore
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "scheduler_state.json")
		s = store.NewFileStore(path)
	})

	Context("load", func() {
		It("returns no snapshot when the file does not exist", func() {
			snap, err := s.Load(context.TODO())
			Expect(err).To(BeNil())
			Expect(snap).To(BeNil())
		})

		It("fails on a corrupt snapshot file", func() {
			Expect(os.WriteFile(path, []byte("{not json"), 0o644)).To(Succeed())

			_, err := s.Load(context.TODO())
			Expect(err).ToNot(BeNil())
		})
	})

	Context("save", func() {
		It("round-trips a snapshot", func() {
			saved := newSnapshot(2)
			Expect(s.Save(context.TODO(), saved)).To(Succeed())

			loaded, err := s.Load(context.TODO())
			Expect(err).To(BeNil())
			Expect(loaded).ToNot(BeNil())
			Expect(loaded.SavedAt).To(Equal(saved.SavedAt))
			Expect(loaded.Jobs).To(HaveLen(2))
			Expect(loaded.Jobs[0].ID).To(Equal(saved.Jobs[0].ID))
			Expect(loaded.Jobs[0].Status).To(Equal(jobs.StatusCompleted))
			Expect(loaded.Jobs[0].InputData).To(HaveKeyWithValue("scene", "intro"))
		})

		It("replaces the previous snapshot", func() {
			Expect(s.Save(context.TODO(), newSnapshot(3))).To(Succeed())

			latest := newSnapshot(1)
			Expect(s.Save(context.TODO(), latest)).To(Succeed())

			loaded, err := s.Load(context.TODO())
			Expect(err).To(BeNil())
			Expect(loaded.Jobs).To(HaveLen(1))
			Expect(loaded.Jobs[0].ID).To(Equal(latest.Jobs[0].ID))
		})

		It("leaves no temporary files behind", func() {
			Expect(s.Save(context.TODO(), newSnapshot(1))).To(Succeed())
			Expect(s.Save(context.TODO(), newSnapshot(1))).To(Succeed())

			entries, err := os.ReadDir(dir)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(Equal("scheduler_state.json"))
		})
	})
})
