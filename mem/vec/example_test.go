package vec_test

import (
	"fmt"

	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/vec"
)

func ExampleVec_Push() {
	v := vec.NewIn[int](alloc.NewLimit(alloc.Heap{}, 24))
	defer v.Free()

	for i := 1; i <= 3; i++ {
		if err := v.Push(i); err != nil {
			x, _ := vec.Rejected[int](err)
			fmt.Println("rejected", x)
			continue
		}
	}
	fmt.Println(v.Slice())
	// Output:
	// rejected 3
	// [1 2]
}
