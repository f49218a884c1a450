// Command kheapctl runs the kernel heap allocators in a simulated address
// space: random workloads, the reference scenario and memory dumps.
package main

func main() {
	execute()
}
