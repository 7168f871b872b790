package interp

var templates = map[Language]string{
	JavaScript: `// Hello World in JavaScript
console.log("Hello, World!");`,

	Python: `# Hello World in Python
print("Hello, World!")`,

	Java: `// Hello World in Java
class Solution {
    public static void main(String[] args) {
        System.out.println("Hello, World!");
    }
}`,

	Cpp: `// Hello World in C++
#include <iostream>
using namespace std;

int main() {
    cout << "Hello, World!" << endl;
    return 0;
}`,
}

// Template returns the starter program for tag and whether one exists.
func Template(tag string) (string, bool) {
	src, ok := templates[Language(tag)]
	return src, ok
}
