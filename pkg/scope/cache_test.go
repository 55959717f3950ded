package scope_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/relcore/pkg/container"
	"github.com/kubev2v/relcore/pkg/scope"
)

var _ = Describe("Cache", func() {
	var (
		reg   *container.Registry
		env   scope.Env
		cache *scope.Cache
	)

	BeforeEach(func() {
		var policy *container.StaticPolicy
		reg, policy = newTree()
		env = scope.Env{Registry: reg, Policy: policy}
		cache = scope.NewCache()
	})

	It("should share resolutions between equal keys", func() {
		user := &container.User{ID: 2}
		r1, err := scope.CurrentAndSubfolders.New(mustGet(reg, "a"), user, env)
		Expect(err).ToNot(HaveOccurred())

		first, err := cache.IDs(context.TODO(), r1)
		Expect(err).ToNot(HaveOccurred())
		Expect(cache.Len()).To(Equal(1))

		// a new grant is not visible until the entry is dropped
		env.Policy.(*container.StaticPolicy).Grant(2, "c", container.PermRead)
		r2, err := scope.CurrentAndSubfolders.New(mustGet(reg, "a"), user, env)
		Expect(err).ToNot(HaveOccurred())
		second, err := cache.IDs(context.TODO(), r2)
		Expect(err).ToNot(HaveOccurred())
		Expect(second).To(Equal(first))

		cache.Invalidate(r2.CacheKey())
		third, err := cache.IDs(context.TODO(), r2)
		Expect(err).ToNot(HaveOccurred())
		Expect(third.IDs).To(ContainElement("c"))
	})

	It("should not share resolutions between permissions", func() {
		user := &container.User{ID: 2}
		readers, err := scope.CurrentAndSubfolders.New(mustGet(reg, "a"), user, env)
		Expect(err).ToNot(HaveOccurred())
		read, err := cache.IDs(context.TODO(), readers)
		Expect(err).ToNot(HaveOccurred())
		Expect(read.IDs).To(ConsistOf("a", "b", "wb", "d"))

		updating := env
		updating.Permission = container.PermUpdate
		updaters, err := scope.CurrentAndSubfolders.New(mustGet(reg, "a"), user, updating)
		Expect(err).ToNot(HaveOccurred())
		update, err := cache.IDs(context.TODO(), updaters)
		Expect(err).ToNot(HaveOccurred())
		Expect(update.IsEmpty()).To(BeTrue())
		Expect(cache.Len()).To(Equal(2))
	})

	It("should not share resolutions between policies", func() {
		user := &container.User{ID: 2}
		r1, err := scope.CurrentWithUser.New(mustGet(reg, "c"), user, env)
		Expect(err).ToNot(HaveOccurred())
		first, err := cache.IDs(context.TODO(), r1)
		Expect(err).ToNot(HaveOccurred())
		Expect(first.IsEmpty()).To(BeTrue())

		other := env
		other.Policy = container.NewStaticPolicy().Grant(2, "c", container.PermRead)
		r2, err := scope.CurrentWithUser.New(mustGet(reg, "c"), user, other)
		Expect(err).ToNot(HaveOccurred())
		Expect(r2.CacheKey()).To(Equal(r1.CacheKey()))
		second, err := cache.IDs(context.TODO(), r2)
		Expect(err).ToNot(HaveOccurred())
		Expect(second.IDs).To(ConsistOf("c"))

		cache.Invalidate(r1.CacheKey())
		Expect(cache.Len()).To(BeZero())
	})

	It("should keep keys apart", func() {
		for _, t := range scope.Types() {
			r, err := t.New(mustGet(reg, "b"), &container.User{ID: 2}, env)
			Expect(err).ToNot(HaveOccurred())
			_, err = cache.IDs(context.TODO(), r)
			Expect(err).ToNot(HaveOccurred())
		}
		Expect(cache.Len()).To(Equal(len(scope.Types())))

		cache.Clear()
		Expect(cache.Len()).To(BeZero())
	})

	It("should be safe for concurrent callers", func() {
		var wg sync.WaitGroup
		results := make([]scope.Resolution, 16)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				r, err := scope.AllFolders.New(mustGet(reg, "b"), &container.User{ID: 2}, env)
				Expect(err).ToNot(HaveOccurred())
				results[i], err = cache.IDs(context.TODO(), r)
				Expect(err).ToNot(HaveOccurred())
			}(i)
		}
		wg.Wait()

		for _, res := range results {
			Expect(res.IDs).To(Equal([]string{"a", "b", "wb", "d", "shared"}))
		}
		Expect(cache.Len()).To(Equal(1))
	})
})
