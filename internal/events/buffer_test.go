package events

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("buffer", Ordered, func() {
	Context("buffer", func() {
		It("grows on push", func() {
			b := newBuffer()

			b.PushBack(&message{Kind: JobMessageKindPrefix + ".submitted", Data: []byte("msg1")})
			Expect(b.Size()).To(Equal(1))

			b.PushBack(&message{Kind: JobMessageKindPrefix + ".started", Data: []byte("msg2")})
			b.PushBack(&message{Kind: JobMessageKindPrefix + ".completed", Data: []byte("msg3")})
			Expect(b.Size()).To(Equal(3))
		})

		It("pops in insertion order", func() {
			b := newBuffer()

			b.PushBack(&message{Data: []byte("msg1")})
			b.PushBack(&message{Data: []byte("msg2")})
			b.PushBack(&message{Data: []byte("msg3")})
			Expect(b.Size()).To(Equal(3))

			for _, want := range []string{"msg1", "msg2", "msg3"} {
				m := b.Pop()
				Expect(m).NotTo(BeNil())
				Expect(m.Data).To(Equal([]byte(want)))
			}
			Expect(b.Size()).To(Equal(0))
			Expect(b.Pop()).To(BeNil())
		})

		It("interleaves push and pop", func() {
			b := newBuffer()

			b.PushBack(&message{Data: []byte("msg1")})
			Expect(b.Pop().Data).To(Equal([]byte("msg1")))

			b.PushBack(&message{Data: []byte("msg2")})
			b.PushBack(&message{Data: []byte("msg3")})
			Expect(b.Pop().Data).To(Equal([]byte("msg2")))
			Expect(b.Size()).To(Equal(1))
		})
	})
})
