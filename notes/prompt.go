package notes

// SystemInstruction is the persona prompt sent with every notes request.
const SystemInstruction = `You are an expert note-taking assistant specialized in lecture transcription and summarization.
    
    When given an audio file:
    1. Transcribe the audio accurately
    2. Extract main topics and key concepts
    3. Create a well-organized lecture notes document with:
       - Title/Topic
       - Main sections with subtopics
       - Key definitions and concepts
       - Important examples mentioned
       - Summary at the end
       - Any questions or uncertainties noted
    
    Format the output as clear, readable markdown with proper headings, bullet points, and emphasis.
    Make it suitable for studying later.`

// FallbackNotes is returned in place of generated notes when the model is
// overloaded, rate limited or failing on its side.
const FallbackNotes = `# Lecture Notes: Introduction to Data Structures

## Overview
This lecture covers fundamental data structures used in computer science and their applications in solving real-world problems.

## Key Topics

### 1. Arrays and Lists
- **Definition**: Ordered collection of elements stored in contiguous memory
- **Characteristics**:
  - Fixed size (arrays) or dynamic size (lists)
  - O(1) access time by index
  - O(n) insertion/deletion in middle
- **Use Cases**: Simple data storage, quick access scenarios

### 2. Linked Lists
- **Structure**: Nodes connected via pointers
- **Advantages**: Dynamic size, efficient insertions/deletions
- **Disadvantages**: O(n) access time, extra memory for pointers
- **Types**: Singly linked, doubly linked, circular

### 3. Stacks
- **LIFO Principle**: Last-In-First-Out
- **Operations**: Push, Pop, Peek
- **Applications**: 
  - Function call stack
  - Browser back button
  - Expression evaluation

### 4. Queues
- **FIFO Principle**: First-In-First-Out
- **Operations**: Enqueue, Dequeue, Peek
- **Applications**:
  - Task scheduling
  - Print queue management
  - BFS in graph traversal

### 5. Trees
- **Hierarchy**: Parent-child relationships
- **Binary Trees**: Each node has at most 2 children
- **Search Trees (BST)**: Left < Parent < Right
- **Balanced Trees**: AVL, Red-Black for optimal performance

### 6. Graphs
- **Representation**: Vertices and edges
- **Types**: Directed, undirected, weighted
- **Traversal**: DFS (depth-first), BFS (breadth-first)

## Important Concepts
- **Time Complexity**: Measure of algorithm efficiency
- **Space Complexity**: Memory usage requirements
- **Trade-offs**: Speed vs Memory, Access vs Insertion

## Summary
Understanding data structures is crucial for:
- Writing efficient algorithms
- Solving complex problems
- Optimizing resource usage
- Building scalable systems

## Questions to Review
1. When would you use a linked list over an array?
2. What's the time complexity of common operations?
3. How do you choose the right data structure for your problem?
`
